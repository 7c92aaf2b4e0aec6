package model

// TagBinding associates a physical NFC tag with a playlist and the last
// playback checkpoint recorded under it. One row per tag UID; updates
// overwrite in place, no history is kept.
type TagBinding struct {
	// UID is the uppercase-hex hardware identifier burned into the tag.
	UID          string `gorm:"column:uid;type:text;primaryKey" json:"uid"`
	PlaylistURI  string `gorm:"column:playlist_uri;type:text;not null;index" json:"playlist_uri"`
	LastTrackURI string `gorm:"column:last_track_uri;type:text;not null;default:''" json:"last_track_uri"`
	LastPosMS    int64  `gorm:"column:last_pos_ms;not null;default:0" json:"last_pos_ms"`
	// UpdatedAt is epoch seconds of the last write, set by the repository
	// (not a DB default) so sqlite and postgres agree and bulk seeds share
	// one load timestamp.
	UpdatedAt int64 `gorm:"column:updated_at;not null;autoUpdateTime:false;autoCreateTime:false" json:"updated_at"`
}

func (TagBinding) TableName() string {
	return "tags"
}

// HasCheckpoint reports whether any playback progress has been recorded
// for this tag since its last (re-)assignment.
func (b *TagBinding) HasCheckpoint() bool {
	return b.LastTrackURI != ""
}
