// Package repository defines the MySQL persistence of seat plans, buses,
// schedules with their seat inventory and tickets, plus an in-memory store
// with the same semantics.  Sentinel values here let handlers tell the
// failure scenarios apart: ErrConflict signals a unique constraint such as
// a duplicate seat plan name or bus number, the not found errors map to 404.
package repository

import (
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an insert or update hits a unique key, for
// example a second seat plan with the same name for one company.
var ErrConflict = errors.New("conflict")

// ErrSeatPlanNotFound indicates that a seat plan was not located in the DB.
var ErrSeatPlanNotFound = errors.New("seat plan not found")

// ErrBusNotFound indicates that a bus was not located in the DB.
var ErrBusNotFound = errors.New("bus not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a MySQL duplicate entry error and,
// when key is not empty, whether it was raised by that unique key.
func duplicateKey(err error, key string) bool {
    var me *mysql.MySQLError
    if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
        return false
    }
    return key == "" || strings.Contains(me.Message, key)
}
