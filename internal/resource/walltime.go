package resource

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWallTime parses the batch-scheduler duration formats:
// "M", "M:S", "H:M:S", "D-H", "D-H:M" and "D-H:M:S".
func ParseWallTime(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty wall time")
	}

	days := 0
	rest := raw
	hasDays := false
	if idx := strings.Index(raw, "-"); idx >= 0 {
		d, err := parseField(raw[:idx], raw)
		if err != nil {
			return 0, err
		}
		days = d
		rest = raw[idx+1:]
		hasDays = true
	}

	parts := strings.Split(rest, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := parseField(p, raw)
		if err != nil {
			return 0, err
		}
		nums[i] = n
	}

	var h, m, sec int
	switch {
	case hasDays && len(nums) == 1:
		h = nums[0]
	case hasDays && len(nums) == 2:
		h, m = nums[0], nums[1]
	case hasDays && len(nums) == 3:
		h, m, sec = nums[0], nums[1], nums[2]
	case !hasDays && len(nums) == 1:
		m = nums[0]
	case !hasDays && len(nums) == 2:
		m, sec = nums[0], nums[1]
	case !hasDays && len(nums) == 3:
		h, m, sec = nums[0], nums[1], nums[2]
	default:
		return 0, fmt.Errorf("invalid wall time %q", raw)
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second
	if total <= 0 {
		return 0, fmt.Errorf("wall time %q must be positive", raw)
	}
	return total, nil
}

// FormatWallTime renders a duration in the D-HH:MM:SS form.
func FormatWallTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	days := total / 86400
	total %= 86400
	h := total / 3600
	total %= 3600
	m := total / 60
	sec := total % 60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func parseField(p, raw string) (int, error) {
	n, err := strconv.Atoi(p)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid wall time %q", raw)
	}
	return n, nil
}
