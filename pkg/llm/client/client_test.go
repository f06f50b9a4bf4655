package client

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/llm"
	testutils "github.com/noorlabs/mishkat/pkg/utils/test"
)

func okResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.NewMessage("assistant", text)}
}

var _ = Describe("Client", func() {
	var (
		pool   *credentials.Pool
		logger *zap.Logger
		req    *llm.ChatRequest
		ctx    context.Context
		sleeps []time.Duration
	)

	BeforeEach(func() {
		logger, _ = zap.NewDevelopment()
		ctx = context.Background()
		sleeps = nil
		req = &llm.ChatRequest{
			Model:    "test-model",
			Messages: []llm.Message{llm.NewMessage("user", "What does 2:153 teach?")},
		}
	})

	newClient := func(keys []string, strategies ...Strategy) *Client {
		var err error
		pool, err = credentials.NewPool(keys, time.Minute, logger)
		Expect(err).NotTo(HaveOccurred())

		c, err := New(Config{
			Strategies: strategies,
			Pool:       pool,
			Logger:     logger,
		})
		Expect(err).NotTo(HaveOccurred())

		// No real backoff in tests; record what would have been slept.
		c.sleep = func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}
		return c
	}

	Describe("New", func() {
		It("requires at least one strategy", func() {
			pool, err := credentials.NewPool([]string{"sk-a"}, time.Minute, logger)
			Expect(err).NotTo(HaveOccurred())
			_, err = New(Config{Pool: pool, Logger: logger})
			Expect(err).To(HaveOccurred())
		})

		It("requires a credential pool", func() {
			_, err := New(Config{
				Strategies: []Strategy{testutils.NewMockStrategy("direct")},
				Logger:     logger,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Complete", func() {
		It("returns the primary response on first success", func() {
			primary := testutils.NewMockStrategy("direct",
				testutils.MockOutcome{Response: okResponse("answer")},
			)
			secondary := testutils.NewMockStrategy("library")

			resp, attempts, err := newClient([]string{"sk-a"}, primary, secondary).Complete(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.Content).To(Equal("answer"))
			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].Strategy).To(Equal("direct"))
			Expect(attempts[0].Outcome).To(Equal(OutcomeSuccess))
			Expect(secondary.Calls()).To(BeEmpty())
		})

		Context("retryable failures", func() {
			It("retries up to the attempt budget before falling back", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: retryable(500, errors.New("upstream blew up"))},
				)
				secondary := testutils.NewMockStrategy("library",
					testutils.MockOutcome{Response: okResponse("from library")},
				)

				resp, attempts, err := newClient([]string{"sk-a"}, primary, secondary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("from library"))

				Expect(primary.Calls()).To(HaveLen(DefaultMaxAttempts))
				Expect(sleeps).To(HaveLen(DefaultMaxAttempts - 1))

				Expect(attempts).To(HaveLen(DefaultMaxAttempts + 1))
				for _, a := range attempts[:DefaultMaxAttempts] {
					Expect(a.Strategy).To(Equal("direct"))
					Expect(a.Outcome).To(Equal(OutcomeRetryableError))
				}
				Expect(attempts[DefaultMaxAttempts].Strategy).To(Equal("library"))
				Expect(attempts[DefaultMaxAttempts].Outcome).To(Equal(OutcomeSuccess))
			})

			It("succeeds on a later retry of the same strategy", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: retryable(503, errors.New("overloaded"))},
					testutils.MockOutcome{Response: okResponse("second try")},
				)

				resp, attempts, err := newClient([]string{"sk-a"}, primary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("second try"))
				Expect(attempts).To(HaveLen(2))
				Expect(sleeps).To(HaveLen(1))
			})

			It("treats unclassified errors as retryable", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: errors.New("connection reset")},
					testutils.MockOutcome{Response: okResponse("recovered")},
				)

				resp, _, err := newClient([]string{"sk-a"}, primary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("recovered"))
			})
		})

		Context("fatal failures", func() {
			It("skips straight to the next strategy without retrying", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: fatal(400, errors.New("invalid request"))},
				)
				secondary := testutils.NewMockStrategy("library",
					testutils.MockOutcome{Response: okResponse("from library")},
				)

				resp, attempts, err := newClient([]string{"sk-a"}, primary, secondary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("from library"))

				Expect(primary.Calls()).To(HaveLen(1))
				Expect(sleeps).To(BeEmpty())
				Expect(attempts[0].Outcome).To(Equal(OutcomeFatalError))
			})
		})

		Context("auth failures", func() {
			It("rotates to the next credential on the same strategy", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: authFailure(401, errors.New("bad key"))},
					testutils.MockOutcome{Response: okResponse("second key worked")},
				)

				resp, attempts, err := newClient([]string{"sk-first", "sk-second"}, primary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("second key worked"))

				calls := primary.Calls()
				Expect(calls).To(HaveLen(2))
				Expect(calls[0].APIKey).To(Equal("sk-first"))
				Expect(calls[1].APIKey).To(Equal("sk-second"))

				Expect(attempts[0].Outcome).To(Equal(OutcomeAuthError))
				Expect(attempts[1].Outcome).To(Equal(OutcomeSuccess))
				Expect(sleeps).To(BeEmpty())
			})

			It("does not consume the retry budget when rotating", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: authFailure(401, errors.New("bad key"))},
					testutils.MockOutcome{Err: retryable(500, errors.New("flaky"))},
					testutils.MockOutcome{Response: okResponse("eventually")},
				)

				resp, _, err := newClient([]string{"sk-first", "sk-second"}, primary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("eventually"))
				Expect(primary.Calls()).To(HaveLen(3))
			})

			It("exhausts the strategy when every credential fails", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: authFailure(401, errors.New("bad key"))},
				)
				secondary := testutils.NewMockStrategy("library",
					testutils.MockOutcome{Err: authFailure(401, errors.New("bad key"))},
				)

				resp, attempts, err := newClient([]string{"sk-only"}, primary, secondary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Degraded).To(BeTrue())

				// Primary burns the single credential; secondary finds none.
				Expect(primary.Calls()).To(HaveLen(1))
				Expect(secondary.Calls()).To(BeEmpty())

				last := attempts[len(attempts)-1]
				Expect(last.Strategy).To(Equal(StrategyDegraded))

				var sawNoCreds bool
				for _, a := range attempts {
					if a.Outcome == OutcomeNoCredentials {
						sawNoCreds = true
					}
				}
				Expect(sawNoCreds).To(BeTrue())
			})
		})

		Context("degraded terminal stage", func() {
			It("always returns a response when every strategy fails", func() {
				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: fatal(400, errors.New("rejected"))},
				)
				secondary := testutils.NewMockStrategy("library",
					testutils.MockOutcome{Err: fatal(400, errors.New("rejected"))},
				)

				resp, attempts, err := newClient([]string{"sk-a"}, primary, secondary).Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp).NotTo(BeNil())
				Expect(resp.Degraded).To(BeTrue())
				Expect(resp.Message.Content).NotTo(BeEmpty())

				last := attempts[len(attempts)-1]
				Expect(last.Strategy).To(Equal(StrategyDegraded))
				Expect(last.Outcome).To(Equal(OutcomeSuccess))
			})

			It("uses a caller-supplied template", func() {
				pool, err := credentials.NewPool([]string{"sk-a"}, time.Minute, logger)
				Expect(err).NotTo(HaveOccurred())

				c, err := New(Config{
					Strategies: []Strategy{testutils.NewMockStrategy("direct",
						testutils.MockOutcome{Err: fatal(400, errors.New("rejected"))},
					)},
					Pool:   pool,
					Logger: logger,
					Degraded: func(_ *llm.ChatRequest) *llm.ChatResponse {
						return &llm.ChatResponse{
							Message:  llm.NewMessage("assistant", "custom fallback"),
							Degraded: true,
						}
					},
				})
				Expect(err).NotTo(HaveOccurred())

				resp, _, err := c.Complete(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Message.Content).To(Equal("custom fallback"))
			})
		})

		Context("cancellation", func() {
			It("aborts promptly when the context is canceled", func() {
				cancelCtx, cancel := context.WithCancel(ctx)
				cancel()

				primary := testutils.NewMockStrategy("direct",
					testutils.MockOutcome{Err: context.Canceled},
				)

				_, _, err := newClient([]string{"sk-a"}, primary).Complete(cancelCtx, req)
				Expect(err).To(MatchError(context.Canceled))
			})
		})
	})
})

var _ = Describe("backoffDelay", func() {
	It("stays within the jitter envelope of the exponential delay", func() {
		base := 100 * time.Millisecond
		cap := 8 * time.Second

		for range 50 {
			d := backoffDelay(1, base, cap)
			Expect(d).To(BeNumerically(">=", base/2))
			Expect(d).To(BeNumerically("<=", base+base/2))
		}
	})

	It("caps the exponential growth", func() {
		base := 100 * time.Millisecond
		cap := time.Second

		for range 50 {
			d := backoffDelay(20, base, cap)
			Expect(d).To(BeNumerically("<=", cap+cap/2))
		}
	})
})

var _ = Describe("classify", func() {
	It("maps HTTP statuses onto the fallback taxonomy", func() {
		Expect(classifyStatus(401, errors.New("x")).Classification).To(Equal(AuthFailure))
		Expect(classifyStatus(403, errors.New("x")).Classification).To(Equal(AuthFailure))
		Expect(classifyStatus(429, errors.New("x")).Classification).To(Equal(Retryable))
		Expect(classifyStatus(500, errors.New("x")).Classification).To(Equal(Retryable))
		Expect(classifyStatus(400, errors.New("x")).Classification).To(Equal(Fatal))
	})

	It("defaults unclassified errors to retryable", func() {
		Expect(classify(errors.New("unknown"))).To(Equal(Retryable))
	})
})
