package mutate

import (
	"sync"

	"github.com/trutim/api/internal/svc/mongo"
)

type Mutate struct {
	mongo mongo.Instance
	mx    sync.Map // tag → *sync.Mutex
}

func New(opt InstanceOptions) *Mutate {
	return &Mutate{
		mongo: opt.Mongo,
	}
}

type InstanceOptions struct {
	Mongo mongo.Instance
}

func (m *Mutate) mtx(tag string) *sync.Mutex {
	val, _ := m.mx.LoadOrStore(tag, &sync.Mutex{})

	return val.(*sync.Mutex)
}
