// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация валюты и форматирование сумм для логов.
package common

import (
	"fmt"
	"math"
)

// PluralizeRupees возвращает правильную форму слова «рупия» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "рупия" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "рупии" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "рупий" (0, 5-20, 25-30, 100, ...)
//
// Примеры:
//
//	PluralizeRupees(1)  → "рупия"
//	PluralizeRupees(3)  → "рупии"
//	PluralizeRupees(5)  → "рупий"
//	PluralizeRupees(11) → "рупий"
//	PluralizeRupees(21) → "рупия"
func PluralizeRupees(n int64) string {
	// Берём абсолютное значение для отрицательных чисел
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "рупия"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "рупии"
	}

	// Большое множественное: 0, 5-20, 25-30, 100, ...
	return "рупий"
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150) → "150 рупий"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%d %s", balance, PluralizeRupees(balance))
}

// FormatAmount создаёт строку вида "+100 рупий" или "-50 рупий".
// Знак «+» или «-» добавляется автоматически.
func FormatAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizeRupees(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizeRupees(amount))
}
