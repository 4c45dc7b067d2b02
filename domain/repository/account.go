package repository

import "tiktok-autoposter/domain/model"

// IAccountStore reads and writes per-account JSON records keyed by account
// name (the file name without extension).
type IAccountStore interface {
	List() ([]string, error)
	SelectRandom() (string, error)
	Get(name string) (*model.Account, error)
	Save(name string, account *model.Account) error
	UpdateRefreshToken(name, refreshToken string) error
}
