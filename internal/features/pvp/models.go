// Package pvp — models.go описывает результаты PVP-действий.
package pvp

// KillResult — итог успешного убийства.
type KillResult struct {
	TargetID int64
	// Reward — чеканка за убийство, равномерно из [min, max].
	// Награда минтится, источника финансирования у неё нет.
	Reward int64
}

// StealResult — итог успешной кражи.
type StealResult struct {
	TargetID int64
	// Amount — сколько реально переехало с баланса цели (честный
	// перевод, валюта леджера сохраняется).
	Amount int64
}

// ProtectResult — итог покупки защиты.
type ProtectResult struct {
	// Until — unix-секунды окончания защиты.
	Until int64
	// Cost — списанная стоимость; 0 для премиума.
	Cost int64
}

// ReviveResult — итог оживления.
type ReviveResult struct {
	TargetID int64
	// Cost — списанная стоимость; 0 для премиума.
	Cost int64
}

// DailyResult — итог суточной награды.
type DailyResult struct {
	// Amount — зачисленная сумма.
	Amount int64
	// Premium — true, если кулдаун был обойдён по премиуму.
	Premium bool
}
