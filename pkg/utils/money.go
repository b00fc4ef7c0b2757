package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ==================== 货币换算 ====================

// MoneyToMinorUnits 将本地十进制价格转换为远端的整数最小货币单位
// decimals: 店铺配置的价格小数位数 (默认 2, 即 "19.99" -> 1999)
// 四舍五入到最近的最小单位
func MoneyToMinorUnits(price decimal.Decimal, decimals int32) int64 {
	return price.Shift(decimals).Round(0).IntPart()
}

// MinorUnitsToMoney 将远端整数最小货币单位还原为本地十进制价格
func MinorUnitsToMoney(amount int64, decimals int32) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-decimals)
}

// ParsePrice 解析价格字符串
// 空串或负数视为非法价格
func ParsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("价格为空")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("价格格式非法: %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("价格不能为负: %s", d)
	}
	return d, nil
}
