package admin

import "errors"

var ErrNotFound = errors.New("admin user not found")

// User is an administrator account. Password holds a bcrypt hash; rows
// written before hashing was introduced may still hold plaintext and are
// upgraded on the next successful login.
type User struct {
	Username string `csv:"username" json:"username"`
	Password string `csv:"password" json:"-"`
	Name     string `csv:"name" json:"name"`
}
