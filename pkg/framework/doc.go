// Package framework defines the runtime that hosts active objects.
//
// A runtime owns one instance of each collaborator of the publish-subscribe
// core: the critical section, the scheduler lock, the event pools, the
// active object directory and the subscription registry. Active objects are
// registered before or after Start; each one runs on its own goroutine.
//
// Example usage:
//
//	rt, _ := framework.New(framework.NewConfig(32))
//	counter, _ := rt.NewObject("counter", 2, handleTick)
//	rt.PubSub().Subscribe(counter, sigTick)
//	_ = rt.Start(ctx)
//	rt.PubSub().Publish(rt.Pools().New(sigTick, 0, nil), nil)
package framework
