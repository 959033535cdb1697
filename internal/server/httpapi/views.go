package httpapi

import (
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

type tokenRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createUserRequest struct {
	Username      string  `json:"username" binding:"required"`
	FullName      *string `json:"full_name"`
	IsAdmin       bool    `json:"is_admin"`
	PlainPassword string  `json:"plain_password" binding:"required"`
}

// userView is the public shape of a record. It never carries the hash.
type userView struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	IsAdmin  bool    `json:"is_admin"`
}

func toNewUser(r createUserRequest) users.NewUser {
	n := users.NewUser{
		Username: r.Username,
		IsAdmin:  r.IsAdmin,
		Password: r.PlainPassword,
	}
	if r.FullName != nil {
		n.FullName = *r.FullName
	}
	return n
}

func toUserView(u *users.User) userView {
	v := userView{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
	if u.FullName != "" {
		name := u.FullName
		v.FullName = &name
	}
	return v
}

type testAuthResponse struct {
	Text string `json:"text"`
}
