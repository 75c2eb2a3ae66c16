package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TxOptions bounds how long a transaction may wait on row locks and run overall.
type TxOptions struct {
	LockWait time.Duration
	Timeout  time.Duration
}

func (o TxOptions) lockWaitSeconds() int {
	secs := int(o.LockWait / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RunInTx runs fn in a READ COMMITTED transaction. fn's error rolls everything back.
func RunInTx(ctx context.Context, conn *sql.DB, opts TxOptions, fn func(tx *sql.Tx) error) (err error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if opts.LockWait > 0 {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", opts.lockWaitSeconds())); err != nil {
			return fmt.Errorf("set lock wait: %w", err)
		}
	}

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
