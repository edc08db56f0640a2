package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Необязательные переменные: пустое значение - значение по умолчанию, некорректное - ошибка

func durationOr(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if len(v) == 0 {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func intOr(name string, def int) (int, error) {
	v := os.Getenv(name)
	if len(v) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func int64Or(name string, def int64) (int64, error) {
	v := os.Getenv(name)
	if len(v) == 0 {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func floatOr(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if len(v) == 0 {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return f, nil
}

func decimalOr(name string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(name)
	if len(v) == 0 {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func stringOr(name, def string) string {
	if v := os.Getenv(name); len(v) != 0 {
		return v
	}
	return def
}
