package core

import "time"

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ManagerID string    `json:"managerId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Position carries the function-type weighting coefficients used to
// fold an employee's per-type performance into one overall score.
type Position struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CoreWeight      float64   `json:"coreWeight"`
	StrategicWeight float64   `json:"strategicWeight"`
	SupportWeight   float64   `json:"supportWeight"`
	CreatedAt       time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"departmentId"`
	PositionID   string    `json:"positionId"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewUser struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	PositionID   string `json:"positionId"`
}
