package biz

import (
	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/domain"
	"github.com/tsnotify/ts-notify-bridge/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Cache      *domain.ClientCache
	Classifier *usecase.ClassifierUsecase
}

// NewUsecases creates the usecases over a fresh client cache
func NewUsecases(l lane.Lane, ignoreList []string) *Usecases {
	cache := domain.NewClientCache()
	return &Usecases{
		Cache:      cache,
		Classifier: usecase.NewClassifierUsecase(l, cache, ignoreList),
	}
}
