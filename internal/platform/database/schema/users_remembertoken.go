package schema

// UserRememberTokenTable represents the 'users.remembertoken' table
type UserRememberTokenTable struct {
	Table     string
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt string
	CreatedAt string
}

// UserRememberToken is the schema definition for users.remembertoken
var UserRememberToken = UserRememberTokenTable{
	Table:     "users.remembertoken",
	ID:        "id",
	UserID:    "userid",
	TokenHash: "tokenhash",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserRememberTokenTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt,
	}
}
