// Package testutil holds helpers shared by store and service tests.
package testutil

import (
	"errors"
	"sync"
)

// Outcomes holds one error per contender, indexed like the fn argument of
// Race. A nil entry is a contender that won.
type Outcomes []error

// Won counts contenders that returned nil.
func (o Outcomes) Won() int {
	n := 0
	for _, err := range o {
		if err == nil {
			n++
		}
	}
	return n
}

// Lost counts contenders whose error matches target.
func (o Outcomes) Lost(target error) int {
	n := 0
	for _, err := range o {
		if err != nil && errors.Is(err, target) {
			n++
		}
	}
	return n
}

// Unexpected returns the errors that match none of expected.
func (o Outcomes) Unexpected(expected ...error) []error {
	var out []error
	for _, err := range o {
		if err == nil {
			continue
		}
		known := false
		for _, target := range expected {
			if errors.Is(err, target) {
				known = true
				break
			}
		}
		if !known {
			out = append(out, err)
		}
	}
	return out
}

// Race runs fn on n goroutines that are released together, so they contend
// for the same row or slot rather than running one after another.
func Race(n int, fn func(i int) error) Outcomes {
	out := make(Outcomes, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			out[i] = fn(i)
		}()
	}
	close(start)
	wg.Wait()
	return out
}
