package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

type pageData struct {
	Title     string
	Exchanges []exchangeView
}

type exchangeView struct {
	User string
	AI   string
	// Transient marks a failed reply that was shown but not saved.
	Transient bool
}

const pageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>Gemini Terminal Chat</title>
  <style>
    body {
      background-color: #1a1a2e;
      color: #ffffff;
      font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
      max-width: 760px;
      margin: 0 auto;
      padding: 24px;
    }
    .chat-container {
      max-height: 500px;
      overflow-y: auto;
      padding-right: 10px;
    }
    .chat-bubble-user {
      background-color: #2e2e2e;
      padding: 12px;
      border-radius: 10px;
      margin-bottom: 10px;
      white-space: pre-wrap;
    }
    .chat-bubble-ai {
      background-color: #4040a1;
      padding: 12px;
      border-radius: 10px;
      margin-bottom: 20px;
      white-space: pre-wrap;
    }
    .chat-bubble-ai.transient { border: 1px dashed #ff8080; }
    form { display: flex; flex-direction: column; gap: 10px; }
    label { font-size: 16px; }
    input[type=text] {
      font-size: 18px;
      border-radius: 8px;
      border: 1px solid #444;
      padding: 10px;
      background-color: #262626;
      color: white;
    }
    button {
      align-self: flex-start;
      font-size: 18px;
      background-color: #6c63ff;
      color: white;
      border: none;
      border-radius: 10px;
      padding: 10px 20px;
      transition: 0.3s;
      cursor: pointer;
    }
    button:hover { background-color: #4e4bd1; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>

  <div class="chat-container" id="chat">
  {{- range .Exchanges}}
    <div class="chat-bubble-user">👤 You: {{.User}}</div>
    <div class="chat-bubble-ai{{if .Transient}} transient{{end}}">🤖 Gemini: {{.AI}}</div>
  {{- end}}
  </div>

  <form method="post" action="/chat" id="chat_form">
    <label for="message">💬 Type your message:</label>
    <input type="text" id="message" name="message" placeholder="Ask me anything..." autocomplete="off" autofocus />
    <button type="submit">Send</button>
  </form>

  <script>
    var c = document.getElementById("chat");
    c.scrollTop = c.scrollHeight;
  </script>
</body>
</html>
`
