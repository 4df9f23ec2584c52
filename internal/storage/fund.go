package storage

type FundCategory struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	PlannedAmount float64 `json:"planned_amount"`
	Year          int     `json:"year"`
	IsActive      bool    `json:"is_active"`
}

type Fund struct {
	ID             int64   `json:"id"`
	FundCategoryID int64   `json:"fund_category_id"`
	Name           string  `json:"name"`
	Comment        *string `json:"comment,omitempty"`
	IsActive       bool    `json:"is_active"`
}
