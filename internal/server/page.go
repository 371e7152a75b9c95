package server

import (
	"fmt"
	"net/http"
)

// handleIndex serves a small self-contained chat page: join a room by id,
// then talk over the WebSocket endpoint. Presentation only; the core never
// sees any of this markup.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, indexPage); err != nil {
		s.log.Warn("error writing index page", "err", err)
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>Browser Chat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; max-width: 640px; }
        #history {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        .message { margin: 4px 0; }
        .info { color: #721c24; background-color: #f8d7da; padding: 4px; }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        .room_name { color: gray; font-size: 0.9em; margin-top: 4px; }
    </style>
</head>
<body>
    <h1>Browser Chat</h1>

    <div id="join">
        <input type="text" id="roomInput" placeholder="Room id...">
        <button onclick="joinRoom()">Join</button>
    </div>

    <div id="chat" style="display:none">
        <div id="history"></div>
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
        <div class="room_name" id="roomName"></div>
    </div>

    <script>
        let ws = null;

        function addLine(text, cls) {
            const div = document.createElement('div');
            div.className = cls || 'message';
            div.textContent = text;
            const history = document.getElementById('history');
            history.appendChild(div);
            history.scrollTop = history.scrollHeight;
        }

        async function joinRoom() {
            const roomId = document.getElementById('roomInput').value.trim();
            if (!roomId) return;
            const resp = await fetch('/join', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({room_id: roomId})
            });
            if (resp.status === 409) {
                addLine('Room full', 'info');
                return;
            }
            if (!resp.ok) {
                addLine('Join failed', 'info');
                return;
            }
            connect(roomId);
        }

        function connect(roomId) {
            const scheme = location.protocol === 'https:' ? 'wss' : 'ws';
            ws = new WebSocket(scheme + '://' + location.host + '/room/' + encodeURIComponent(roomId));
            ws.onopen = function() {
                document.getElementById('join').style.display = 'none';
                document.getElementById('chat').style.display = 'block';
                document.getElementById('roomName').textContent = roomId;
            };
            ws.onmessage = function(event) {
                const payload = JSON.parse(event.data);
                addLine(payload.message);
            };
            ws.onclose = function() {
                addLine('Disconnected', 'info');
            };
        }

        function sendMessage() {
            const input = document.getElementById('messageInput');
            const text = input.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({message: text}));
                input.value = '';
            }
        }

        document.getElementById('messageInput').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
