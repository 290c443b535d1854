package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/operis/vigil/pkg/ctx"

	"github.com/toolkits/pkg/logger"
	"github.com/toolkits/pkg/str"
)

type User struct {
	Id        int64    `json:"id" gorm:"primaryKey"`
	Username  string   `json:"username" gorm:"type:varchar(64);uniqueIndex"`
	Nickname  string   `json:"nickname" gorm:"type:varchar(64)"`
	Password  string   `json:"-" gorm:"type:varchar(128)"`
	CompanyId int64    `json:"company_id" gorm:"index"`
	Roles     string   `json:"-" gorm:"type:varchar(255)"` // 写库字段
	RolesLst  []string `json:"roles" gorm:"-"`             // 前端交互字段
	CreateAt  int64    `json:"create_at"`
	CreateBy  string   `json:"create_by" gorm:"type:varchar(64)"`
	UpdateAt  int64    `json:"update_at"`
	UpdateBy  string   `json:"update_by" gorm:"type:varchar(64)"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) String() string {
	return fmt.Sprintf("<id:%d username:%s nickname:%s company:%d>", u.Id, u.Username, u.Nickname, u.CompanyId)
}

func (u *User) IsAdmin() bool {
	for i := 0; i < len(u.RolesLst); i++ {
		if u.RolesLst[i] == AdminRole {
			return true
		}
	}
	return false
}

func (u *User) Verify() error {
	u.Username = strings.TrimSpace(u.Username)

	if u.Username == "" {
		return fmt.Errorf("%w: username is blank", ErrInvalidInput)
	}

	if str.Dangerous(u.Username) {
		return fmt.Errorf("%w: username has invalid characters", ErrInvalidInput)
	}

	return nil
}

func (u *User) Add(ctx *ctx.Context) error {
	user, err := UserGetByUsername(ctx, u.Username)
	if err != nil {
		return err
	}

	if user != nil {
		return fmt.Errorf("%w: username already exists", ErrInvalidInput)
	}

	now := time.Now().Unix()
	u.CreateAt = now
	u.UpdateAt = now
	return Insert(ctx, u)
}

func UserGet(ctx *ctx.Context, where string, args ...interface{}) (*User, error) {
	var lst []*User
	err := DB(ctx).Where(where, args...).Find(&lst).Error
	if err != nil {
		return nil, err
	}

	if len(lst) == 0 {
		return nil, nil
	}

	lst[0].RolesLst = strings.Fields(lst[0].Roles)
	return lst[0], nil
}

func UserGetByUsername(ctx *ctx.Context, username string) (*User, error) {
	return UserGet(ctx, "username=?", username)
}

func UserGetById(ctx *ctx.Context, id int64) (*User, error) {
	return UserGet(ctx, "id=?", id)
}

// PassLogin verifies the username/password pair against the stored
// salted hash.
func PassLogin(ctx *ctx.Context, username, pass string) (*User, error) {
	user, err := UserGetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, fmt.Errorf("username or password invalid")
	}

	loginPass, err := CryptoPass(ctx, pass)
	if err != nil {
		return nil, err
	}

	if loginPass != user.Password {
		return nil, fmt.Errorf("username or password invalid")
	}

	return user, nil
}

// InitRoot creates the root account on first boot.
func InitRoot(ctx *ctx.Context) {
	num, err := Count(DB(ctx).Model(&User{}))
	if err != nil {
		logger.Errorf("failed to count users: %v", err)
		return
	}

	if num > 0 {
		return
	}

	pass, err := CryptoPass(ctx, "root.2026")
	if err != nil {
		logger.Errorf("failed to crypto root password: %v", err)
		return
	}

	now := time.Now().Unix()
	user := User{
		Username:  "root",
		Nickname:  "超管",
		Password:  pass,
		CompanyId: 1,
		Roles:     AdminRole,
		CreateAt:  now,
		UpdateAt:  now,
		CreateBy:  "system",
		UpdateBy:  "system",
	}

	if err := Insert(ctx, &user); err != nil {
		logger.Errorf("failed to create root user: %v", err)
		return
	}

	logger.Info("root user created, please change the initial password")
}
