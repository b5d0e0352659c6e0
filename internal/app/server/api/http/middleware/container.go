// Package middleware collects huma middlewares for one handler at a time.
package middleware

import "github.com/danielgtaylor/huma/v2"

type Container struct {
	mws huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.mws = append(c.mws, mw)
}

// GetAllAndClear hands the collected middlewares to a handler and starts a new set.
func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.mws
	c.mws = nil
	if out == nil {
		out = huma.Middlewares{}
	}
	return out
}
