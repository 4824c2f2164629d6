package project

const starterIndexHTML = `<!doctype html>
<html>
  <head><meta charset="UTF-8" /><meta name="viewport" content="width=device-width, initial-scale=1.0" /><title>Lovable</title></head>
  <body><div id="root"></div><script type="module" src="/src/main.tsx"></script></body>
</html>
`

const starterMainTSX = `import React from 'react'
import ReactDOM from 'react-dom/client'
import App from './App'
ReactDOM.createRoot(document.getElementById('root')!).render(<App />)
`

const starterAppTSX = `export default function App(){ return <div style={{padding:20,fontFamily:'system-ui'}}>Hello Lovable 👋</div> }
`

const starterPackageJSON = `{
  "name": "lovable-starter",
  "private": true,
  "version": "0.0.1",
  "type": "module",
  "scripts": { "dev": "vite", "build": "vite build", "preview": "vite preview" }
}
`

// StarterFiles is the small app a new project opens with, so the editor
// and preview have something to show before the first generation.
func StarterFiles() []*FileNode {
	return []*FileNode{
		NewFile("index.html", starterIndexHTML),
		NewDirectory("src",
			NewFile("src/main.tsx", starterMainTSX),
			NewFile("src/App.tsx", starterAppTSX),
		),
		NewFile("package.json", starterPackageJSON),
	}
}
