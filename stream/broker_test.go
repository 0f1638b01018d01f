package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithin(t *testing.T, ch <-chan []string, d time.Duration) []string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestBroker_SubscribeDeliversLatest(t *testing.T) {
	b := NewBroker[[]string]()
	b.Publish("garden", 1, []string{"tomato"})

	ch, cancel := b.Subscribe("garden")
	defer cancel()

	got := recvWithin(t, ch, time.Second)
	assert.Equal(t, []string{"tomato"}, got)
}

func TestBroker_SubscribeBeforeFirstPublish(t *testing.T) {
	b := NewBroker[[]string]()

	ch, cancel := b.Subscribe("garden")
	defer cancel()

	// Henüz snapshot yok — kanal boş olmalı
	select {
	case v := <-ch:
		t.Fatalf("expected no snapshot yet, got %v", v)
	default:
	}

	b.Publish("garden", 1, []string{"pepper"})
	assert.Equal(t, []string{"pepper"}, recvWithin(t, ch, time.Second))
}

func TestBroker_LatestWinsCoalescing(t *testing.T) {
	b := NewBroker[[]string]()

	ch, cancel := b.Subscribe("garden")
	defer cancel()

	// Abone hiç okumadan üç publish — sadece sonuncusu kalmalı
	b.Publish("garden", 1, []string{"v1"})
	b.Publish("garden", 2, []string{"v2"})
	b.Publish("garden", 3, []string{"v3"})

	assert.Equal(t, []string{"v3"}, recvWithin(t, ch, time.Second))

	select {
	case v := <-ch:
		t.Fatalf("expected channel drained, got %v", v)
	default:
	}
}

func TestBroker_StaleRevisionDropped(t *testing.T) {
	b := NewBroker[[]string]()

	ch, cancel := b.Subscribe("garden")
	defer cancel()

	assert.True(t, b.Publish("garden", 2, []string{"m1", "m2"}))
	assert.Equal(t, []string{"m1", "m2"}, recvWithin(t, ch, time.Second))

	// Daha düşük revizyonlu (bayat) snapshot düşürülür: teslim edilmez,
	// latest'i de geriye sarmaz
	assert.False(t, b.Publish("garden", 1, []string{"m1"}))
	assert.False(t, b.Publish("garden", 2, []string{"m1"})) // eşit revizyon da bayat

	select {
	case v := <-ch:
		t.Fatalf("stale snapshot delivered: %v", v)
	default:
	}

	// Yeni abone de bayat durumu değil, son geçerli snapshot'ı görür
	ch2, cancel2 := b.Subscribe("garden")
	defer cancel2()
	assert.Equal(t, []string{"m1", "m2"}, recvWithin(t, ch2, time.Second))
}

func TestBroker_RefreshSerializesLoads(t *testing.T) {
	b := NewBroker[[]string]()

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	firstDone := make(chan struct{})
	secondDone := make(chan struct{})

	go func() {
		defer close(firstDone)
		_ = b.Refresh("garden", func() ([]string, error) {
			close(firstStarted)
			<-releaseFirst
			return []string{"first"}, nil
		})
	}()

	<-firstStarted
	go func() {
		defer close(secondDone)
		_ = b.Refresh("garden", func() ([]string, error) {
			return []string{"first", "second"}, nil
		})
	}()

	// İkinci yükleme, ilki yayınlanmadan başlayamaz
	select {
	case <-secondDone:
		t.Fatal("second refresh completed while first load was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(releaseFirst)
	select {
	case <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second refresh")
	}
	<-firstDone

	// Sonuç: sonra yüklenen sonra yayınlandı, latest en taze durumda
	ch, cancel := b.Subscribe("garden")
	defer cancel()
	assert.Equal(t, []string{"first", "second"}, recvWithin(t, ch, time.Second))
}

func TestBroker_RefreshLoadError(t *testing.T) {
	b := NewBroker[[]string]()

	ch, cancel := b.Subscribe("garden")
	defer cancel()

	err := b.Refresh("garden", func() ([]string, error) {
		return nil, fmt.Errorf("store unavailable")
	})
	require.Error(t, err)

	// Hata yayın üretmez
	select {
	case v := <-ch:
		t.Fatalf("expected no snapshot on load error, got %v", v)
	default:
	}
}

func TestBroker_SubscribeFresh(t *testing.T) {
	t.Run("initial snapshot goes only to the new subscriber", func(t *testing.T) {
		b := NewBroker[[]string]()

		ch1, cancel1, err := b.SubscribeFresh("garden", func() ([]string, error) {
			return []string{"a"}, nil
		})
		require.NoError(t, err)
		defer cancel1()
		assert.Equal(t, []string{"a"}, recvWithin(t, ch1, time.Second))

		ch2, cancel2, err := b.SubscribeFresh("garden", func() ([]string, error) {
			return []string{"a", "b"}, nil
		})
		require.NoError(t, err)
		defer cancel2()
		assert.Equal(t, []string{"a", "b"}, recvWithin(t, ch2, time.Second))

		// Mevcut abone ikinci aboneliğin yüklemesiyle tetiklenmez
		select {
		case v := <-ch1:
			t.Fatalf("existing subscriber should not be re-notified, got %v", v)
		default:
		}

		// Sonraki Refresh herkese gider
		require.NoError(t, b.Refresh("garden", func() ([]string, error) {
			return []string{"a", "b", "c"}, nil
		}))
		assert.Equal(t, []string{"a", "b", "c"}, recvWithin(t, ch1, time.Second))
		assert.Equal(t, []string{"a", "b", "c"}, recvWithin(t, ch2, time.Second))
	})

	t.Run("load error registers nothing", func(t *testing.T) {
		b := NewBroker[[]string]()

		_, _, err := b.SubscribeFresh("garden", func() ([]string, error) {
			return nil, fmt.Errorf("store unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 0, b.SubscriberCount("garden"))
	})
}

func TestBroker_TopicIsolation(t *testing.T) {
	b := NewBroker[[]string]()

	chA, cancelA := b.Subscribe("a")
	defer cancelA()
	chB, cancelB := b.Subscribe("b")
	defer cancelB()

	b.Publish("a", 1, []string{"only-a"})

	assert.Equal(t, []string{"only-a"}, recvWithin(t, chA, time.Second))
	select {
	case v := <-chB:
		t.Fatalf("topic b should not receive, got %v", v)
	default:
	}
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := NewBroker[[]string]()

	ch, cancel := b.Subscribe("garden")
	require.Equal(t, 1, b.SubscriberCount("garden"))

	cancel()
	cancel() // ikinci çağrı panic yapmamalı

	assert.Equal(t, 0, b.SubscriberCount("garden"))

	// Kapalı kanal: okumalar sıfır değerle hemen döner
	_, ok := <-ch
	assert.False(t, ok)

	// Kapalı aboneye publish güvenli olmalı
	b.Publish("garden", 1, []string{"after-cancel"})
}

func TestBroker_MultipleSubscribersEachReceive(t *testing.T) {
	b := NewBroker[[]string]()

	ch1, cancel1 := b.Subscribe("garden")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("garden")
	defer cancel2()

	require.Equal(t, 2, b.SubscriberCount("garden"))

	b.Publish("garden", 1, []string{"broadcast"})

	assert.Equal(t, []string{"broadcast"}, recvWithin(t, ch1, time.Second))
	assert.Equal(t, []string{"broadcast"}, recvWithin(t, ch2, time.Second))
}
