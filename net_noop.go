package libemit

import "context"

type noopConnection struct{}

func (c *noopConnection) Write(f Frame) error { return nil }

func (c *noopConnection) Close() {}

func (c *noopConnection) CloseChan() CloseChan { return nil }

func (c *noopConnection) CloseErr() error { return nil }

func (c *noopConnection) Open(context.Context) error { return nil }
