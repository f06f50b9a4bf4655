package credentials_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/noorlabs/mishkat/pkg/credentials"
)

var _ = Describe("KeysFromEnv", func() {
	BeforeEach(func() {
		os.Unsetenv(credentials.EnvKeys)
		os.Unsetenv(credentials.EnvKey)
	})

	AfterEach(func() {
		os.Unsetenv(credentials.EnvKeys)
		os.Unsetenv(credentials.EnvKey)
	})

	It("returns nil when nothing is configured", func() {
		Expect(credentials.KeysFromEnv()).To(BeNil())
	})

	It("splits the key list and trims whitespace", func() {
		os.Setenv(credentials.EnvKeys, "sk-one, sk-two ,, sk-three")
		Expect(credentials.KeysFromEnv()).To(Equal([]string{"sk-one", "sk-two", "sk-three"}))
	})

	It("falls back to the single-key variable", func() {
		os.Setenv(credentials.EnvKey, "sk-solo")
		Expect(credentials.KeysFromEnv()).To(Equal([]string{"sk-solo"}))
	})

	It("prefers the key list over the single key", func() {
		os.Setenv(credentials.EnvKeys, "sk-list")
		os.Setenv(credentials.EnvKey, "sk-solo")
		Expect(credentials.KeysFromEnv()).To(Equal([]string{"sk-list"}))
	})
})
