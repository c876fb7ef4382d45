package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type UserSQLStore struct {
	rdb, rwdb *sql.DB
}

func NewUserSQLStore(rdb, rwdb *sql.DB) *UserSQLStore {
	return &UserSQLStore{rdb, rwdb}
}

func (store *UserSQLStore) CreateUser(
	ctx context.Context,
	email, displayName string,
) (*User, error) {
	u := &User{Email: email, DisplayName: displayName, Active: true}
	query := `insert into users (email, display_name, active)
	values ($1, $2, $3)
	returning user_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, u, query, u.Email, u.DisplayName, u.Active); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLStore) ReadUserByID(ctx context.Context, id int64) (*User, error) {
	u := new(User)
	query := "select * from users where user_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, u, query, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLStore) ListActiveUsers(ctx context.Context) ([]*User, error) {
	query := "select * from users where active = true order by user_id"
	users := make([]*User, 0)
	err := sqlscan.Select(ctx, store.rdb, &users, query)
	return users, err
}

func (store *UserSQLStore) CreateProject(
	ctx context.Context,
	ownerID *int64,
	name string,
) (*Project, error) {
	p := &Project{ProjectOwnerID: ownerID, Name: name}
	query := `insert into projects (project_owner_id, name)
	values ($1, $2)
	returning project_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, p, query, p.ProjectOwnerID, p.Name); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *UserSQLStore) ReadProjectByID(ctx context.Context, id int64) (*Project, error) {
	p := new(Project)
	query := "select * from projects where project_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, p, query, id); err != nil {
		return nil, err
	}
	return p, nil
}
