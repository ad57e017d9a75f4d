package models

type InterestedCreateRequest struct {
	PerformanceID int64 `json:"performanceId"`
}

type InterestedCreateResponse struct {
	ID int64 `json:"id"`
}

// InterestedPerformanceItem is a bookmarked performance.
type InterestedPerformanceItem struct {
	ID            int64  `json:"id"`
	PerformanceID int64  `json:"performanceId"`
	Title         string `json:"title"`
	PosterURL     string `json:"posterUrl"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Venue         string `json:"venue"`
}
