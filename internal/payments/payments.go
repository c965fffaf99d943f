// Package payments generates the demo payment notifications the app speaks.
// A real deployment would feed notifications from the platform's
// notification listener instead.
package payments

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
)

// Notification is one incoming payment event.
type Notification struct {
	Bank     string
	Amount   int64 // VND
	Account  string
	Received time.Time
}

var demoBanks = []string{"ACB", "Vietcombank", "Techcombank", "MB Bank", "BIDV"}

var demoAmounts = []int64{20000, 50000, 100000, 150000, 250000, 500000, 1200000, 2000000}

// Demo produces a randomized payment notification. The rng is injectable so
// tests can pin the output; pass nil for a time-seeded source.
func Demo(rng *rand.Rand) Notification {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return Notification{
		Bank:     demoBanks[rng.Intn(len(demoBanks))],
		Amount:   demoAmounts[rng.Intn(len(demoAmounts))],
		Account:  fmt.Sprintf("...%04d", rng.Intn(10000)),
		Received: time.Now(),
	}
}

// Text renders the notification as it would arrive from an English-language
// banking app, suitable for the phrase translator.
func (n Notification) Text() string {
	return fmt.Sprintf("%s: you have received %s VND to account %s. Thank you.",
		n.Bank, humanize.Comma(n.Amount), n.Account)
}

// Announcement renders the full Vietnamese announcement the speaker reads
// aloud, amount included.
func (n Notification) Announcement() string {
	return fmt.Sprintf("%s: Đã nhận %s đồng vào tài khoản %s",
		n.Bank, humanize.Comma(n.Amount), n.Account)
}
