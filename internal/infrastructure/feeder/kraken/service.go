package krakenfeeder

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// KrakenWebSocketURL is the base url to open a connection with kraken.
	// This can be tweaked if in the future it might change, even if unlikely.
	KrakenWebSocketURL = "wss://ws.kraken.com"

	DefaultInterval = 10 * time.Second
)

var (
	// kraken names some assets differently.
	krakenAssets = map[string]string{
		"BTC":  "XBT",
		"WBTC": "XBT",
		"WETH": "ETH",
	}
)

type service struct {
	url         string
	conn        *websocket.Conn
	writeTicker *time.Ticker
	lock        *sync.RWMutex
	chLock      *sync.Mutex
	closed      bool

	tickerByPair        map[string][]string
	latestFeedsByTicker map[string]ports.PriceFeed
	feedChan            chan ports.PriceFeed
	quitChan            chan struct{}
}

// NewKrakenPriceFeeder returns a feeder pushing the latest prices of the
// subscribed tickers every interval. An empty url defaults to
// KrakenWebSocketURL.
func NewKrakenPriceFeeder(
	url string, interval time.Duration,
) (ports.PriceFeeder, error) {
	if len(url) <= 0 {
		url = KrakenWebSocketURL
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be greater than zero")
	}

	return &service{
		url:                 url,
		writeTicker:         time.NewTicker(interval),
		lock:                &sync.RWMutex{},
		chLock:              &sync.Mutex{},
		latestFeedsByTicker: make(map[string]ports.PriceFeed),
		feedChan:            make(chan ports.PriceFeed),
		quitChan:            make(chan struct{}, 1),
	}, nil
}

// SubscribeTickers opens the connection with kraken and subscribes to the
// given tickers, ie. ETH/USD.
func (s *service) SubscribeTickers(tickers []string) error {
	if len(tickers) <= 0 {
		return fmt.Errorf("missing tickers")
	}

	tickerByPair := make(map[string][]string)
	for _, ticker := range tickers {
		pair, err := toKrakenPair(ticker)
		if err != nil {
			return err
		}
		tickerByPair[pair] = append(tickerByPair[pair], ticker)
	}

	conn, err := connectAndSubscribe(s.url, pairs(tickerByPair))
	if err != nil {
		return err
	}

	s.lock.Lock()
	s.conn = conn
	s.tickerByPair = tickerByPair
	s.lock.Unlock()
	return nil
}

func (s *service) Start() error {
	if s.getConn() == nil {
		return fmt.Errorf("feeder must subscribe tickers before starting")
	}

	go func() {
		for range s.writeTicker.C {
			s.writeToFeedChan()
		}
	}()

	mustReconnect, err := s.start()
	for mustReconnect {
		log.WithError(err).Warn("connection dropped unexpectedly. Trying to reconnect...")

		var conn *websocket.Conn
		conn, err = connectAndSubscribe(s.url, pairs(s.tickerByPair))
		if err != nil {
			s.writeTicker.Stop()
			s.closeChannels()
			return err
		}
		s.lock.Lock()
		s.conn = conn
		s.lock.Unlock()

		log.Debug("connection and subscriptions re-established. Restarting...")
		mustReconnect, err = s.start()
	}

	return err
}

// Stop makes Start return. The feed channel is closed right after.
func (s *service) Stop() {
	select {
	case s.quitChan <- struct{}{}:
	default:
	}
	// Unblocks the pending read.
	if conn := s.getConn(); conn != nil {
		//nolint
		conn.SetReadDeadline(time.Now())
	}
}

func (s *service) FeedChan() chan ports.PriceFeed {
	return s.feedChan
}

func (s *service) start() (mustReconnect bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mustReconnect = true
			err = fmt.Errorf("%v", rec)
		}
	}()

	conn := s.getConn()
	for {
		select {
		case <-s.quitChan:
			s.shutdown(conn)
			return false, nil
		default:
			// Kraken may drop the connection without a close frame, in that
			// case the read below can panic instead of returning an error.
			// The recover above turns both into a reconnection.
			_, message, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-s.quitChan:
					s.shutdown(conn)
					return false, nil
				default:
				}
				panic(err)
			}

			priceFeeds := s.parseFeed(message)
			for _, priceFeed := range priceFeeds {
				s.writePriceFeed(priceFeed.GetTicker(), priceFeed)
			}
		}
	}
}

func (s *service) shutdown(conn *websocket.Conn) {
	s.writeTicker.Stop()
	s.closeChannels()
	//nolint
	conn.Close()
}

func (s *service) getConn() *websocket.Conn {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.conn
}

func (s *service) readPriceFeeds() []ports.PriceFeed {
	s.lock.RLock()
	defer s.lock.RUnlock()

	feeds := make([]ports.PriceFeed, 0, len(s.latestFeedsByTicker))
	for _, priceFeed := range s.latestFeedsByTicker {
		feeds = append(feeds, priceFeed)
	}
	return feeds
}

func (s *service) writePriceFeed(ticker string, priceFeed ports.PriceFeed) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.latestFeedsByTicker[ticker] = priceFeed
}

func (s *service) writeToFeedChan() {
	s.chLock.Lock()
	defer s.chLock.Unlock()

	if s.closed {
		return
	}
	priceFeeds := s.readPriceFeeds()
	for _, priceFeed := range priceFeeds {
		s.feedChan <- priceFeed
	}
}

func (s *service) closeChannels() {
	s.chLock.Lock()
	defer s.chLock.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.feedChan)
}

// parseFeed parses a kraken ticker message, ie.
// [channelID, {"c": ["1800.10", "0.1"], ...}, "ticker", "ETH/USD"].
func (s *service) parseFeed(msg []byte) []ports.PriceFeed {
	var i []interface{}
	if err := json.Unmarshal(msg, &i); err != nil {
		return nil
	}
	if len(i) != 4 {
		return nil
	}

	pair, ok := i[3].(string)
	if !ok {
		return nil
	}

	s.lock.RLock()
	tickers, ok := s.tickerByPair[pair]
	s.lock.RUnlock()
	if !ok {
		return nil
	}

	ii, ok := i[1].(map[string]interface{})
	if !ok {
		return nil
	}

	iii, ok := ii["c"].([]interface{})
	if !ok {
		return nil
	}

	if len(iii) < 1 {
		return nil
	}
	priceStr, ok := iii[0].(string)
	if !ok {
		return nil
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return nil
	}

	now := time.Now()
	feeds := make([]ports.PriceFeed, 0, len(tickers))
	for _, ticker := range tickers {
		feeds = append(feeds, &priceFeed{
			ticker:    ticker,
			price:     price.Round(8),
			timestamp: now,
		})
	}
	return feeds
}

func toKrakenPair(ticker string) (string, error) {
	assets := strings.Split(strings.ToUpper(strings.TrimSpace(ticker)), "/")
	if len(assets) != 2 || len(assets[0]) <= 0 || len(assets[1]) <= 0 {
		return "", fmt.Errorf("invalid ticker %q, must be in the form BASE/QUOTE", ticker)
	}
	for i, asset := range assets {
		if krakenAsset, ok := krakenAssets[asset]; ok {
			assets[i] = krakenAsset
		}
	}
	return strings.Join(assets, "/"), nil
}

func pairs(tickerByPair map[string][]string) []string {
	list := make([]string, 0, len(tickerByPair))
	for pair := range tickerByPair {
		list = append(list, pair)
	}
	return list
}

func connectAndSubscribe(url string, pairs []string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	msg := map[string]interface{}{
		"event": "subscribe",
		"pair":  pairs,
		"subscription": map[string]string{
			"name": "ticker",
		},
	}

	buf, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		//nolint
		conn.Close()
		return nil, fmt.Errorf("cannot subscribe to given tickers: %s", err)
	}

	return conn, nil
}
