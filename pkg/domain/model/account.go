package model

// Account is a staff login. PasswordHash is a bcrypt hash.
type Account struct {
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash" masq:"secret"`
	Role         string `toml:"role"`
}

// Principal is the result of a successful login.
type Principal struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
