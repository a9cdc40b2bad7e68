package seatplan

import (
    "fmt"
    "strconv"
    "strings"
)

// RowLabel converts a zero-based row index to a spreadsheet style label:
// 0 -> A, 25 -> Z, 26 -> AA.
func RowLabel(i int) string {
    if i < 0 {
        return ""
    }
    res := []rune{}
    for {
        res = append(res, rune('A'+i%26))
        i = i/26 - 1
        if i < 0 {
            break
        }
    }
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
        res[j], res[k] = res[k], res[j]
    }
    return string(res)
}

// RowIndex is the inverse of RowLabel.  It accepts lower case input.
func RowIndex(label string) (int, bool) {
    s := strings.ToUpper(strings.TrimSpace(label))
    if s == "" {
        return -1, false
    }
    n := 0
    for i := 0; i < len(s); i++ {
        ch := s[i]
        if ch < 'A' || ch > 'Z' {
            return -1, false
        }
        n = n*26 + int(ch-'A'+1)
    }
    return n - 1, true
}

// ParseLayout splits a shorthand layout such as "2+2" or "1+2" into its
// left and right seat counts.  Either side may be zero but not both.
func ParseLayout(layout string) (left, right int, err error) {
    parts := strings.Split(strings.TrimSpace(layout), "+")
    if len(parts) != 2 {
        return 0, 0, fmt.Errorf("%w: layout %q must look like L+R", ErrInvalidLayout, layout)
    }
    left, err = strconv.Atoi(strings.TrimSpace(parts[0]))
    if err != nil || left < 0 {
        return 0, 0, fmt.Errorf("%w: bad left side in %q", ErrInvalidLayout, layout)
    }
    right, err = strconv.Atoi(strings.TrimSpace(parts[1]))
    if err != nil || right < 0 {
        return 0, 0, fmt.Errorf("%w: bad right side in %q", ErrInvalidLayout, layout)
    }
    if left+right == 0 {
        return 0, 0, fmt.Errorf("%w: layout %q has no seats", ErrInvalidLayout, layout)
    }
    return left, right, nil
}

// seatName builds the display name of the pos-th seat (1-based) in a row.
func seatName(rowNames map[int]string, row, pos int) string {
    prefix, ok := rowNames[row]
    if !ok || strings.TrimSpace(prefix) == "" {
        prefix = RowLabel(row)
    }
    return prefix + strconv.Itoa(pos)
}
