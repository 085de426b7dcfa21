package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FIXFLOW_TEST_MODE") == "" {
			_ = os.Setenv("FIXFLOW_TEST_MODE", "1")
		}
	})
}
