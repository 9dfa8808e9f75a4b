// Package auth checks submitted credentials against the credential
// collection. It deliberately reports a single failure mode: callers can
// never tell an unknown username from a wrong password.
package auth

import (
	"errors"

	"github.com/shule-project/shule/core/user"
)

var ErrAuthenticationFailed = errors.New("invalid username or password")

type (
	Service interface {
		Authenticate(username, password string) (user.User, error)
	}

	service struct {
		repo user.Repository
	}
)

func NewService(repo user.Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Authenticate(username, password string) (user.User, error) {
	if username == "" || password == "" {
		return user.User{}, ErrAuthenticationFailed
	}
	cred, err := svc.repo.GetCredential(username)
	if err != nil || cred.Password != password {
		return user.User{}, ErrAuthenticationFailed
	}
	usr, err := svc.repo.GetUserByUsername(username)
	if err != nil {
		return user.User{}, ErrAuthenticationFailed
	}
	return usr, nil
}
