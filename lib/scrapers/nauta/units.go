package nauta

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nauta-sdk/lib/timezone"
)

// ParseSeconds converts a clock-style duration ("HH:MM:SS", or any
// colon-separated chain) into seconds.
func ParseSeconds(s string) (int64, error) {
	var total int64
	for _, part := range strings.Split(strings.TrimSpace(s), ":") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total = total*60 + n
	}
	return total, nil
}

func FormatSeconds(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ParseBytes converts a portal size string ("1,25 MB") into bytes.
func ParseBytes(s string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	unit := strings.ToUpper(fields[len(fields)-1])
	value, err := strconv.ParseFloat(
		strings.ReplaceAll(strings.Join(fields[:len(fields)-1], ""), ",", "."),
		64,
	)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	switch unit {
	case "KB":
		return value * 1024, nil
	case "MB":
		return value * 1024 * 1024, nil
	case "GB":
		return value * 1024 * 1024 * 1024, nil
	}
	return 0, fmt.Errorf("invalid size unit %q", unit)
}

func FormatBytes(bytes float64) string {
	switch {
	case bytes >= 1024*1024*1024:
		return fmt.Sprintf("%.2f GB", bytes/(1024*1024*1024))
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.2f MB", bytes/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.2f KB", bytes/1024)
	}
	return fmt.Sprintf("%.0f B", bytes)
}

// ParsePrice converts a portal money string ("$12,50 CUP") into a float.
func ParsePrice(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", " CUP", "", " ", "", ",", ".").Replace(strings.TrimSpace(s))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return value, nil
}

const dateTimeLayout = "02/01/2006 15:04:05"

// ParseDateTime parses the portal's dd/mm/yyyy timestamps in cuban local
// time.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(dateTimeLayout, strings.TrimSpace(s), timezone.Location)
}
