package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/patrickmn/go-cache"
	"github.com/trutim/api/internal/svc/mongo"
	"github.com/trutim/api/internal/utils"
	"go.uber.org/zap"
)

type Query struct {
	mongo mongo.Instance
	c     *cache.Cache
	mx    sync.Map // tag → *sync.Mutex
}

func New(mongoInst mongo.Instance) *Query {
	return &Query{
		mongo: mongoInst,
		c:     cache.New(time.Second*30, time.Minute*5),
	}
}

func (q *Query) mtx(tag string) *sync.Mutex {
	val, _ := q.mx.LoadOrStore(tag, &sync.Mutex{})

	return val.(*sync.Mutex)
}

func (q *Query) key(tag string) string {
	return fmt.Sprintf("cache:%s", tag)
}

// getFromMemCache retrieves a cached item
func (q *Query) getFromMemCache(ctx context.Context, key string, i interface{}) bool {
	v, ok := q.c.Get(key)
	if !ok {
		return false
	}

	s := v.(string)
	if err := multierror.Append(nil, json.Unmarshal(utils.S2B(s), i)).ErrorOrNil(); err != nil {
		zap.S().Errorw("query, failed to decode a cached item",
			"error", err,
			"key", key,
		)

		return false
	}

	return true
}

// setInMemCache sets an item into the cache
func (q *Query) setInMemCache(ctx context.Context, key string, i interface{}, ex time.Duration) error {
	b, err := json.Marshal(i)
	if err != nil {
		return err
	}

	q.c.Set(key, utils.B2S(b), ex)

	return nil
}
