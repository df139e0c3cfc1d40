package graph

import "sync"

// SafeGo runs fn in a goroutine tracked by wg, recovering panics into
// onPanic so a failing node cannot take down the whole run.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(panicVal any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				onPanic(r)
			}
		}()
		fn()
	}()
}
