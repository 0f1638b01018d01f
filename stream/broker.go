// Package stream, servis katmanının snapshot yayın mekanizmasını sağlar.
//
// Broker, topic başına son snapshot'ı ve revizyonunu tutar; aboneler
// değişiklikte tam snapshot alır — delta yoktur. Yavaş bir abone ara
// snapshot'ları kaçırabilir ama her zaman en günceli görür (latest-wins).
// Revizyonu güncel olandan küçük veya eşit yayınlar düşürülür: bir topic'te
// yeni bir snapshot'tan sonra asla daha eskisi teslim edilmez.
package stream

import "sync"

// subscriber, tek bir aboneliği temsil eder. Kanal 1 kapasitelidir:
// yeni snapshot gelirken eskisi henüz tüketilmediyse eskisi atılır,
// yenisi yazılır. Abone asla geriye gitmez.
type subscriber[T any] struct {
	ch     chan T
	closed bool
}

// Broker, topic bazlı snapshot fan-out yapar. Tüm metodlar goroutine-safe.
//
// refresh: topic başına yükle-ve-yayınla kilidi. Refresh ve SubscribeFresh
// yükleme fonksiyonunu bu kilit altında çağırır — aynı topic için iki
// yükleme asla iç içe geçmez, yayın sırası yükleme sırasıyla aynıdır.
type Broker[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber[T]]struct{}
	latest map[string]T
	revs   map[string]int64

	refresh map[string]*sync.Mutex
}

// NewBroker, constructor.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		topics:  make(map[string]map[*subscriber[T]]struct{}),
		latest:  make(map[string]T),
		revs:    make(map[string]int64),
		refresh: make(map[string]*sync.Mutex),
	}
}

// topicLock, topic'in yükle-ve-yayınla kilidini döner (lazy oluşturulur).
func (b *Broker[T]) topicLock(topic string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refresh[topic] == nil {
		b.refresh[topic] = &sync.Mutex{}
	}
	return b.refresh[topic]
}

// Publish, snapshot'ı verilen revizyonla yayınlar. Revizyon topic'in güncel
// revizyonundan büyük değilse snapshot BAYAT sayılır ve düşürülür — ne
// abonelere gider ne de latest'e yazılır. Teslim edilip edilmediği döner.
func (b *Broker[T]) Publish(topic string, rev int64, snapshot T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publishLocked(topic, rev, snapshot)
}

func (b *Broker[T]) publishLocked(topic string, rev int64, snapshot T) bool {
	if rev <= b.revs[topic] {
		return false
	}
	b.revs[topic] = rev
	b.latest[topic] = snapshot

	for sub := range b.topics[topic] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- snapshot:
		default:
			// Eski snapshot'ı boşalt, güncelini koy.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
	return true
}

// Refresh, load ile güncel snapshot'ı üretir ve bir sonraki revizyonla
// yayınlar. Aynı topic'in Refresh/SubscribeFresh çağrıları topic kilidiyle
// serileştirilir: önce yüklenen önce yayınlanır, araya giren bir yazarın
// daha taze snapshot'ı asla daha eski bir yüklemenin arkasında kalmaz.
// load hata dönerse hiçbir şey yayınlanmaz ve hata aynen döner.
func (b *Broker[T]) Refresh(topic string, load func() (T, error)) error {
	lock := b.topicLock(topic)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := load()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(topic, b.revs[topic]+1, snapshot)
	return nil
}

// Subscribe, topic'e abone olur. Dönen kanaldan önce mevcut snapshot
// (varsa), sonra her yayında güncel snapshot okunur. cancel fonksiyonu
// aboneliği sonlandırır ve kanalı kapatır — birden fazla çağrı güvenlidir.
func (b *Broker[T]) Subscribe(topic string) (<-chan T, func()) {
	sub := &subscriber[T]{ch: make(chan T, 1)}

	b.mu.Lock()
	b.addLocked(topic, sub)

	// İlk teslimat: abone olduğu anki durum.
	if snapshot, ok := b.latest[topic]; ok {
		sub.ch <- snapshot
	}
	b.mu.Unlock()

	return sub.ch, b.cancelFunc(topic, sub)
}

// SubscribeFresh, load ile güncel snapshot'ı üretir, aboneliği kaydeder ve
// snapshot'ı YALNIZCA yeni aboneye teslim eder — topic'in mevcut aboneleri
// tetiklenmez, onların kaçırdığı bir yazma varsa kendi Refresh'i kilidin
// arkasında sırasını bekliyordur. Yükleme topic kilidi altında yapılır,
// latest ve revizyon bu snapshot'a ilerletilir. load hata dönerse abonelik
// kaydedilmez.
func (b *Broker[T]) SubscribeFresh(topic string, load func() (T, error)) (<-chan T, func(), error) {
	lock := b.topicLock(topic)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := load()
	if err != nil {
		return nil, nil, err
	}

	sub := &subscriber[T]{ch: make(chan T, 1)}

	b.mu.Lock()
	b.addLocked(topic, sub)
	b.revs[topic]++
	b.latest[topic] = snapshot
	sub.ch <- snapshot
	b.mu.Unlock()

	return sub.ch, b.cancelFunc(topic, sub), nil
}

// addLocked, aboneyi topic'e kaydeder. b.mu tutularak çağrılır.
func (b *Broker[T]) addLocked(topic string, sub *subscriber[T]) {
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*subscriber[T]]struct{})
	}
	b.topics[topic][sub] = struct{}{}
}

// cancelFunc, aboneliği sonlandıran idempotent disposer üretir.
func (b *Broker[T]) cancelFunc(topic string, sub *subscriber[T]) func() {
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub.closed {
			return
		}
		sub.closed = true
		delete(b.topics[topic], sub)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
		close(sub.ch)
	}
}

// SubscriberCount, topic'in aktif abone sayısını döner. Test ve
// teşhis amaçlıdır.
func (b *Broker[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
