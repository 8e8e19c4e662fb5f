package models

// Report severity categories; each maps to a reputation weight in config.
const (
	ReportSeverityLow      = "Low"
	ReportSeverityMedium   = "Medium"
	ReportSeverityCritical = "Critical"
)

// Report is a partner report filed from inside a chat session.
type Report struct {
	ReportID       string `gorm:"primaryKey"`
	ReporterID     string `gorm:"type:text;not null;index"`
	ReportedUserID string `gorm:"type:text;not null;index"`
	RoomID         string `gorm:"type:uuid"`
	Severity       string // one of the ReportSeverity constants
	Reason         string `gorm:"type:text"`
	Status         string // "new", "processed"
	CreatedAt      int64  `gorm:"autoCreateTime"`
}
