package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var allowedOps = map[string]bool{
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true, "IN": true, "LIKE": true,
}

// GormStore implements Store over a relational database through gorm.
// Change events are published only after the surrounding transaction commits.
type GormStore struct {
	db     *gorm.DB
	broker *Broker
}

// NewGormStore creates a store over db with its own change broker.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, broker: NewBroker()}
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Broker returns the broker that receives this store's change events.
func (s *GormStore) Broker() *Broker {
	return s.broker
}

// Find implements Store.
func (s *GormStore) Find(ctx context.Context, dest any, q Query) error {
	db, err := apply(s.db.WithContext(ctx), q)
	if err != nil {
		return err
	}
	if err := db.Find(dest).Error; err != nil {
		return fmt.Errorf("find: %w", err)
	}
	return nil
}

// First implements Store.
func (s *GormStore) First(ctx context.Context, dest any, q Query) error {
	db, err := apply(s.db.WithContext(ctx), q)
	if err != nil {
		return err
	}
	if err := db.Take(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("first: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context, model any, q Query) (int64, error) {
	q.Limit, q.Offset, q.Order = 0, 0, ""
	db, err := apply(s.db.WithContext(ctx).Model(model), q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Upsert implements Store.
func (s *GormStore) Upsert(ctx context.Context, rows any) error {
	sch, err := s.schemaOf(rows)
	if err != nil {
		return err
	}
	pk := sch.PrioritizedPrimaryField
	if pk == nil {
		return fmt.Errorf("upsert %s: table has no primary key", sch.Table)
	}

	var events []Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rowsOf(rows) {
			var old any
			if id, zero := pk.ValueOf(ctx, row); !zero {
				prev := reflect.New(sch.ModelType)
				res := tx.Where(clause.Eq{Column: clause.Column{Name: pk.DBName}, Value: id}).Limit(1).Find(prev.Interface())
				if res.Error != nil {
					return fmt.Errorf("load %s: %w", sch.Table, res.Error)
				}
				if res.RowsAffected > 0 {
					old = prev.Interface()
					keepCreatedAt(ctx, sch, row, prev.Elem())
				}
			}

			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row.Addr().Interface()).Error; err != nil {
				return fmt.Errorf("upsert %s: %w", sch.Table, err)
			}

			ev := Event{Type: EventInsert, Table: sch.Table, New: copyRow(row)}
			if old != nil {
				ev.Type = EventUpdate
				ev.Old = old
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broker.Publish(events...)
	return nil
}

// Insert implements Store.
func (s *GormStore) Insert(ctx context.Context, rows any) error {
	sch, err := s.schemaOf(rows)
	if err != nil {
		return err
	}
	list := rowsOf(rows)
	if len(list) == 0 {
		return nil
	}

	var events []Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range list {
			if err := tx.Create(row.Addr().Interface()).Error; err != nil {
				return fmt.Errorf("insert %s: %w", sch.Table, err)
			}
			events = append(events, Event{Type: EventInsert, Table: sch.Table, New: copyRow(row)})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broker.Publish(events...)
	return nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, model any, q Query) (int64, error) {
	sch, err := s.schemaOf(model)
	if err != nil {
		return 0, err
	}
	pk := sch.PrioritizedPrimaryField
	if pk == nil {
		return 0, fmt.Errorf("delete %s: table has no primary key", sch.Table)
	}

	var (
		events  []Event
		deleted int64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found := reflect.New(reflect.SliceOf(sch.ModelType))
		scoped, err := apply(tx, Query{Where: q.Where, Scope: q.Scope})
		if err != nil {
			return err
		}
		if err := scoped.Find(found.Interface()).Error; err != nil {
			return fmt.Errorf("delete %s: %w", sch.Table, err)
		}

		list := found.Elem()
		if list.Len() == 0 {
			return nil
		}
		ids := make([]any, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			id, _ := pk.ValueOf(ctx, list.Index(i))
			ids = append(ids, id)
			events = append(events, Event{Type: EventDelete, Table: sch.Table, Old: copyRow(list.Index(i))})
		}

		res := tx.Where(clause.IN{Column: clause.Column{Name: pk.DBName}, Values: ids}).
			Delete(reflect.New(sch.ModelType).Interface())
		if res.Error != nil {
			return fmt.Errorf("delete %s: %w", sch.Table, res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.broker.Publish(events...)
	return deleted, nil
}

// Subscribe implements Store.
func (s *GormStore) Subscribe(table string, l Listener) func() {
	return s.broker.Subscribe(table, l)
}

// Ping implements Store.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Table returns the table name gorm resolves for model.
func (s *GormStore) Table(model any) (string, error) {
	sch, err := s.schemaOf(model)
	if err != nil {
		return "", err
	}
	return sch.Table, nil
}

func (s *GormStore) schemaOf(model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse model %T: %w", model, err)
	}
	return stmt.Schema, nil
}

func apply(db *gorm.DB, q Query) (*gorm.DB, error) {
	for _, c := range q.Where {
		op := strings.ToUpper(c.Op)
		if !allowedOps[op] {
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		db = db.Where(fmt.Sprintf("%s %s ?", c.Column, op), c.Value)
	}
	if sc := q.Scope; sc != nil {
		if sc.IncludeShared {
			db = db.Where(fmt.Sprintf("(%s = ? OR %s IS NULL)", sc.Column, sc.Column), sc.OwnerID)
		} else {
			db = db.Where(fmt.Sprintf("%s = ?", sc.Column), sc.OwnerID)
		}
	}
	if q.Order != "" {
		db = db.Order(q.Order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db, nil
}

// rowsOf returns addressable struct values for a pointer to a struct or a
// pointer to a slice of structs or struct pointers.
func rowsOf(rows any) []reflect.Value {
	v := reflect.ValueOf(rows)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() == reflect.Struct {
			return []reflect.Value{v.Elem()}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil
	}
	out := make([]reflect.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		if e.Kind() == reflect.Ptr {
			if e.IsNil() {
				continue
			}
			e = e.Elem()
		}
		out = append(out, e)
	}
	return out
}

func copyRow(v reflect.Value) any {
	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	return cp.Interface()
}

// keepCreatedAt carries the stored creation time over to a replacement row
// that does not set one.
func keepCreatedAt(ctx context.Context, sch *schema.Schema, row, prev reflect.Value) {
	field := sch.LookUpField("created_at")
	if field == nil {
		return
	}
	if _, zero := field.ValueOf(ctx, row); !zero {
		return
	}
	if v, zero := field.ValueOf(ctx, prev); !zero {
		_ = field.Set(ctx, row, v)
	}
}
