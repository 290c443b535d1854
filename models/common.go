package models

import (
	"errors"

	"github.com/operis/vigil/pkg/ctx"

	"github.com/toolkits/pkg/str"
	"gorm.io/gorm"
)

const AdminRole = "Admin"

// domain error taxonomy, checked with errors.Is by the http layer
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

func DB(ctx *ctx.Context) *gorm.DB {
	return ctx.DB
}

func Count(tx *gorm.DB) (int64, error) {
	var cnt int64
	err := tx.Count(&cnt).Error
	return cnt, err
}

func Exists(tx *gorm.DB) (bool, error) {
	num, err := Count(tx)
	return num > 0, err
}

func Insert(ctx *ctx.Context, obj interface{}) error {
	return DB(ctx).Create(obj).Error
}

// CryptoPass crypto password use salt
func CryptoPass(ctx *ctx.Context, raw string) (string, error) {
	salt, err := ConfigsGet(ctx, "salt")
	if err != nil {
		return "", err
	}

	return str.MD5(salt + "<-*Vg77^41sQ*->" + raw), nil
}
