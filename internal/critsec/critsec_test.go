package critsec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutex_SerializesUpdates(t *testing.T) {
	var cs Mutex
	var n int
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if j%2 == 0 {
					cs.Enter()
					n++
					cs.Exit()
				} else {
					cs.Do(func() { n++ })
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8000, n)
}
