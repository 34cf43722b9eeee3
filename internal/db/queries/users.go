package queries

import "context"

const createUser = `INSERT INTO users (id, username, password_hash, email, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	_, err := q.db.ExecContext(ctx, q.rebind(createUser), arg.ID, arg.Username, arg.PasswordHash, arg.Email, arg.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return User(arg), nil
}

const getUserByUsername = `SELECT id, username, password_hash, email, created_at FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getUserByUsername), username)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.Email, &i.CreatedAt)
	return i, err
}

const getUserByID = `SELECT id, username, password_hash, email, created_at FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getUserByID), id)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.Email, &i.CreatedAt)
	return i, err
}
