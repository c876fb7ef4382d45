package store

import "time"

type User struct {
	UserID      int64     `json:"id"           param:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedOn   time.Time `json:"created_on"`
}

type Project struct {
	ProjectID      int64     `json:"id"       param:"project_id"`
	ProjectOwnerID *int64    `json:"owner_id"`
	Name           string    `json:"name"`
	CreatedOn      time.Time `json:"created_on"`
}
