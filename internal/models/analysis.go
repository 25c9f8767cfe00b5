package models

import "time"

// InsightSeverity classifies the tone of an analysis insight.
type InsightSeverity string

const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
	SeveritySuccess InsightSeverity = "success"
)

// IssueSeverity grades a detected skin issue.
type IssueSeverity string

const (
	IssueLow    IssueSeverity = "low"
	IssueMedium IssueSeverity = "medium"
	IssueHigh   IssueSeverity = "high"
)

// AnalysisScores holds the numeric sub-scores of a report, each in [0,100].
// When used as a comparison delta the values may be negative.
type AnalysisScores struct {
	Overall    int `json:"overall"`
	Hydration  int `json:"hydration"`
	Elasticity int `json:"elasticity"`
	Pores      int `json:"pores"`
	Texture    int `json:"texture"`
	Radiance   int `json:"radiance"`
}

// AnalysisInsight is one categorized observation with recommendations.
type AnalysisInsight struct {
	Category        string          `json:"category"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Severity        InsightSeverity `json:"severity"`
	Recommendations []string        `json:"recommendations"`
}

// DetectedIssue is one localized finding from the analyzer.
type DetectedIssue struct {
	Type       string        `json:"type"`
	Severity   IssueSeverity `json:"severity"`
	Location   string        `json:"location"`
	Confidence float64       `json:"confidence"`
}

// AnalysisReport is the result of analyzing one photo.
type AnalysisReport struct {
	ID                 string            `db:"id" json:"id"`
	PhotoID            string            `db:"photo_id" json:"photo_id"`
	UserID             string            `db:"user_id" json:"user_id"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	Scores             AnalysisScores    `json:"scores"`
	Insights           []AnalysisInsight `json:"insights"`
	DetectedIssues     []DetectedIssue   `json:"detected_issues"`
	ComparisonWithLast AnalysisScores    `json:"comparison_with_last"`
}
