package models

import (
	"fmt"
	"time"

	"github.com/operis/vigil/pkg/ctx"

	"github.com/google/uuid"
	"github.com/toolkits/pkg/str"
)

type Configs struct {
	Id   int64  `json:"id" gorm:"primaryKey"`
	Ckey string `json:"ckey" gorm:"type:varchar(191);uniqueIndex"`
	Cval string `json:"cval" gorm:"type:varchar(4096)"`
}

func (Configs) TableName() string {
	return "configs"
}

func ConfigsGet(ctx *ctx.Context, ckey string) (string, error) {
	var lst []string
	err := DB(ctx).Model(&Configs{}).Where("ckey=?", ckey).Pluck("cval", &lst).Error
	if err != nil {
		return "", err
	}

	if len(lst) > 0 {
		return lst[0], nil
	}

	return "", nil
}

func ConfigsSet(ctx *ctx.Context, ckey, cval string) error {
	num, err := Count(DB(ctx).Model(&Configs{}).Where("ckey=?", ckey))
	if err != nil {
		return err
	}

	if num == 0 {
		return Insert(ctx, &Configs{Ckey: ckey, Cval: cval})
	}

	return DB(ctx).Model(&Configs{}).Where("ckey=?", ckey).Update("cval", cval).Error
}

// InitSalt generates the password salt once per installation.
func InitSalt(ctx *ctx.Context) error {
	val, err := ConfigsGet(ctx, "salt")
	if err != nil {
		return err
	}

	if val != "" {
		return nil
	}

	content := fmt.Sprintf("%d%s", time.Now().UnixNano(), uuid.NewString())
	return ConfigsSet(ctx, "salt", str.MD5(content))
}
