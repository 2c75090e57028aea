// Package memory keeps flow run records in memory.
package memory

import (
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/service/dao"
	"github.com/viant/phaser/service/dao/criteria"
	"github.com/viant/phaser/service/dao/store"
)

// Service implements an in-memory run history.
type Service struct {
	*store.MemoryStore[model.Run]
}

var _ dao.Service[string, model.Run] = (*Service)(nil)

// New creates an empty run history.
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore(
		func(r *model.Run) string { return r.ID },
		(*model.Run).Clone,
		func(r *model.Run, parameters []*dao.Parameter) bool { return criteria.Match(r.Field, parameters) },
	)}
}
