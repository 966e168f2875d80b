package testhelper

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
)

// Context returns a cancellable context for a test.
func Context() (context.Context, func()) {
	return context.WithCancel(context.Background())
}

// MustReadFile returns the content of filename or fails the test.
func MustReadFile(t testing.TB, filename string) []byte {
	t.Helper()

	content, err := ioutil.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}

	return content
}

// MustWriteFile writes content to filename or fails the test.
func MustWriteFile(t testing.TB, filename string, content []byte) {
	t.Helper()

	if err := ioutil.WriteFile(filename, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// MustRemoveFile removes filename or fails the test.
func MustRemoveFile(t testing.TB, filename string) {
	t.Helper()

	if err := os.Remove(filename); err != nil {
		t.Fatal(err)
	}
}

// ModifyEnvironment sets or unsets an environment variable for the duration
// of a test and returns a function restoring the previous state.
func ModifyEnvironment(t testing.TB, key string, value string) func() {
	t.Helper()

	oldValue, hasOldValue := os.LookupEnv(key)
	if value == "" {
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	} else {
		if err := os.Setenv(key, value); err != nil {
			t.Fatal(err)
		}
	}

	return func() {
		if hasOldValue {
			if err := os.Setenv(key, oldValue); err != nil {
				t.Fatal(err)
			}
		} else {
			if err := os.Unsetenv(key); err != nil {
				t.Fatal(err)
			}
		}
	}
}
