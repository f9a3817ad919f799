package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	// Создаем тестовый websocket сервер
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	defer server.Close()

	// Подключаемся к websocket
	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Даем время на регистрацию
	time.Sleep(100 * time.Millisecond)

	// Проверяем, что подключение зарегистрировано
	hub.mu.RLock()
	count := len(hub.connections)
	hub.mu.RUnlock()

	if count != 1 {
		t.Fatalf("Expected 1 connection, got %d", count)
	}

	// Закрываем соединение
	conn.Close()

	// Даем время на отмену регистрации
	time.Sleep(100 * time.Millisecond)

	// Проверяем, что подключение удалено
	hub.mu.RLock()
	count = len(hub.connections)
	hub.mu.RUnlock()

	if count != 0 {
		t.Fatalf("Expected 0 connections after close, got %d", count)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	// Создаем тестовый websocket сервер
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	defer server.Close()

	// Подключаемся к websocket
	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Даем время на регистрацию
	time.Sleep(100 * time.Millisecond)

	// Отправляем сообщение
	message := &Message{
		Type: "test",
		Data: map[string]interface{}{"test": "data"},
	}
	hub.Broadcast(message)

	// Читаем сообщение
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received Message
	err = conn.ReadJSON(&received)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	if received.Type != "test" {
		t.Errorf("Expected type 'test', got '%s'", received.Type)
	}
}

func TestHub_MultipleConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	// Создаем тестовый websocket сервер
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	defer server.Close()

	// Создаем несколько подключений
	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		wsURL := "ws" + server.URL[4:]
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		conns = append(conns, conn)
		defer conn.Close()
	}

	// Даем время на регистрацию
	time.Sleep(100 * time.Millisecond)

	// Проверяем, что все подключения зарегистрированы
	hub.mu.RLock()
	count := len(hub.connections)
	hub.mu.RUnlock()

	if count != 3 {
		t.Fatalf("Expected 3 connections, got %d", count)
	}

	// Отправляем сообщение
	message := &Message{
		Type: "broadcast",
		Data: map[string]interface{}{"test": "data"},
	}
	hub.Broadcast(message)

	// Проверяем, что все подключения получили сообщение
	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(idx int, c *websocket.Conn) {
			defer wg.Done()
			c.SetReadDeadline(time.Now().Add(1 * time.Second))
			var received Message
			err := c.ReadJSON(&received)
			if err != nil {
				t.Errorf("Connection %d failed to read message: %v", idx, err)
				return
			}
			if received.Type != "broadcast" {
				t.Errorf("Connection %d: Expected type 'broadcast', got '%s'", idx, received.Type)
			}
		}(i, conn)
	}

	wg.Wait()
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()
	// Создаем hub с маленьким каналом для теста
	hub.broadcast = make(chan *Message, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	// Заполняем канал
	hub.broadcast <- &Message{Type: "fill"}
	hub.broadcast <- &Message{Type: "fill"}

	// Попытка отправить еще одно сообщение (должно быть проигнорировано)
	message := &Message{
		Type: "dropped",
		Data: map[string]interface{}{"test": "data"},
	}
	hub.Broadcast(message)

	// Проверяем, что сообщение не было добавлено (канал полон)
	select {
	case <-time.After(100 * time.Millisecond):
		// Ожидаемо - канал полон
	case msg := <-hub.broadcast:
		if msg.Type == "dropped" {
			t.Error("Message should be dropped when channel is full")
		}
	}
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	defer server.Close()

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	// Make sure connection is registered
	time.Sleep(50 * time.Millisecond)

	// Cancel the hub context -> Run should close underlying connections
	cancel()

	// Wait for hub to attempt shutdown
	time.Sleep(100 * time.Millisecond)

	// Attempt to read; should fail because server closed connection
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatal("Expected connection to be closed after hub shutdown")
	}

	conn.Close()
}
