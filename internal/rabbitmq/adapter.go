package rabbitmq

import "github.com/streadway/amqp"

// ChannelPublisher адаптирует канал AMQP к интерфейсам публикации сервисов.
type ChannelPublisher struct {
	ch *amqp.Channel
}

// NewChannelPublisher создает публикатор поверх открытого канала.
func NewChannelPublisher(ch *amqp.Channel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish отправляет сообщение в обменник уведомлений.
func (p *ChannelPublisher) Publish(routingKey string, message any) error {
	return PublishMessage(p.ch, Exchange, routingKey, message)
}
