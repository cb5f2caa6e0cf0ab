package domain

// AnalyticsSummary is the dashboard aggregate for one account.
type AnalyticsSummary struct {
	TotalJobs          int               `json:"totalJobs"`
	ByStatus           map[JobStatus]int `json:"byStatus"`
	RecentApplications int               `json:"recentApplications"`
	OpenTasks          int               `json:"openTasks"`
	OverdueTasks       int               `json:"overdueTasks"`
}

// MonthlyCount is one calendar-month bucket of applications.
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}
