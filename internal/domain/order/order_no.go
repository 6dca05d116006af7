package order

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultOrderNoPrefix 默认订单号前缀
const DefaultOrderNoPrefix = "ORD-"

// orderNoTokenLen 随机段长度(取ULID末尾的随机部分,Crockford Base32,50位熵)
const orderNoTokenLen = 10

// GenerateOrderNo 生成订单号
// 格式:前缀 + 年份 + "-" + 10位随机串,如 ORD-2026-7ZQ3K9M2XD
// 唯一性最终由数据库唯一索引保证,冲突时由调用方重新生成
func GenerateOrderNo(prefix string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
	return fmt.Sprintf("%s%d-%s", prefix, now.Year(), id[len(id)-orderNoTokenLen:])
}
