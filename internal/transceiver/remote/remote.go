// Package remote implements a Transceiver that forwards every call to a
// go_mfra bridge over TCP.
package remote

import (
	"fmt"
	"net"
	"time"

	"github.com/andrei-cloud/anet"
	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/message"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
)

const dialTimeout = 2 * time.Second

// Client is a bridge client.
type Client struct {
	addr   string
	pool   anet.Pool
	broker anet.Broker
	name   string
}

// Dial connects to a bridge and fetches the remote reader name.
func Dial(addr string) (*Client, error) {
	factory := func(addr string) (anet.PoolItem, error) {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return nil, err
		}

		return conn, nil
	}

	pool := anet.NewPool(1, factory, addr, nil)
	broker := anet.NewBroker([]anet.Pool{pool}, 1, nil, nil)
	go broker.Start()

	c := &Client{addr: addr, pool: pool, broker: broker}

	name, err := c.call(message.EncodeName())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("bridge %s: %w", addr, err)
	}
	c.name = string(name)

	return c, nil
}

func (c *Client) call(req []byte) ([]byte, error) {
	resp, err := c.broker.Send(&req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errorcodes.ErrTransport, err)
	}

	return message.DecodeResponse(resp)
}

// SelectTarget implements transceiver.Transceiver.
func (c *Client) SelectTarget(uid []byte) (*transceiver.Target, error) {
	payload, err := c.call(message.EncodeSelect(uid))
	if err != nil {
		return nil, err
	}

	return message.DecodeTarget(payload)
}

// TransceiveBits implements transceiver.Transceiver.
func (c *Client) TransceiveBits(tx []byte, bits int) ([]byte, int, error) {
	payload, err := c.call(message.EncodeBits(tx, bits))
	if err != nil {
		return nil, 0, err
	}

	return message.DecodeBitsAnswer(payload)
}

// TransceiveBytes implements transceiver.Transceiver.
func (c *Client) TransceiveBytes(tx []byte) ([]byte, error) {
	return c.call(message.EncodeBytes(tx))
}

// SetProperty implements transceiver.Transceiver.
func (c *Client) SetProperty(p transceiver.Property, enable bool) error {
	_, err := c.call(message.EncodeProperty(p, enable))
	return err
}

// Mifare implements transceiver.Transceiver.
func (c *Client) Mifare(
	cmd transceiver.Command,
	block uint32,
	p *transceiver.Params,
) ([]byte, error) {
	payload, err := c.call(message.EncodeMifare(cmd, block, p))
	if err != nil {
		return nil, err
	}

	return transceiver.DecodeMifare(cmd, payload)
}

// String implements transceiver.Transceiver.
func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.name, c.addr)
}

// Close implements transceiver.Transceiver.
func (c *Client) Close() error {
	c.broker.Close()
	c.pool.Close()

	return nil
}

var _ transceiver.Transceiver = (*Client)(nil)
