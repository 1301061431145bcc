package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"goswapresolver/config"
	"goswapresolver/types"

	"github.com/gomodule/redigo/redis"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

// Store persists what the in-memory pipeline evicts: terminal orders, HTLC
// pairs that reached a terminal status, and the Ethereum scan cursor. The
// live order book and reservation ledger stay in memory.
type Store struct{}

func NewStore() *Store { return &Store{} }

// archived orders are indexed by status set
var orderStatusSets = map[types.OrderStatus]string{
	types.OrderStatusFilled:    "orders:filled",
	types.OrderStatusExpired:   "orders:expired",
	types.OrderStatusCancelled: "orders:cancelled",
}

func (s *Store) ArchiveOrder(order *types.Order) error {
	conn := pool.Get()
	defer conn.Close()

	if order == nil {
		return errors.New("null object to store")
	}
	setKey, ok := orderStatusSets[order.Status]
	if !ok {
		return fmt.Errorf("order %s has non-terminal status %s", order.Hash, order.Status)
	}

	recordKey := fmt.Sprintf("order:%s", order.Hash)
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("cannot marshal order to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey, orderJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", setKey, recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}
	return nil
}

// GetArchivedOrder looks an evicted order up by hash.
func (s *Store) GetArchivedOrder(hash string) (*types.Order, error) {
	conn := pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", fmt.Sprintf("order:%s", hash)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	var order types.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) ArchiveHTLCPair(pair *types.HTLCPair) error {
	conn := pool.Get()
	defer conn.Close()

	if pair == nil {
		return errors.New("null object to store")
	}

	recordKey := fmt.Sprintf("htlcpair:%s", pair.OrderHash)
	pairJSON, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("cannot marshal HTLC pair to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey, pairJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", fmt.Sprintf("htlcpairs:%s", pair.Status), recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}
	return nil
}

func (s *Store) GetEthereumScannedBlock() (int64, error) {
	conn := pool.Get()
	defer conn.Close()

	height, err := redis.Int64(conn.Do("GET", "ethereumBlockScanned"))
	if err == nil {
		return height, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	log.Printf("error Redis get: %s", err.Error())
	return -1, err
}

func (s *Store) SetEthereumScannedBlock(height int64) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", "ethereumBlockScanned", height)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}
	return nil
}
