package web

// dashboardCSS is shared by both dashboards.
const dashboardCSS = `
* { margin: 0; padding: 0; box-sizing: border-box; }

body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    background-color: #f5f7fa;
    color: #333;
    line-height: 1.6;
}

.header {
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    color: white;
    text-align: center;
    padding: 2rem 0;
    margin-bottom: 2rem;
}

.header h1 { font-size: 2.5rem; margin-bottom: 0.5rem; }
.header p { font-size: 1.1rem; opacity: 0.9; }

.container { max-width: 1200px; margin: 0 auto; padding: 0 1rem; }

.summary-cards {
    display: grid;
    grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
    gap: 1.5rem;
    margin-bottom: 3rem;
}

.summary-card {
    background: white;
    border-radius: 10px;
    padding: 1.5rem;
    box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
    text-align: center;
}

.summary-card h3 { color: #667eea; margin-bottom: 0.5rem; font-size: 1rem; }
.summary-card .number { font-size: 2.2rem; font-weight: bold; color: #333; margin-bottom: 0.5rem; }
.summary-card p { color: #666; font-size: 0.9rem; }

.section {
    background: white;
    border-radius: 10px;
    margin-bottom: 2rem;
    box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
    overflow: hidden;
}

.section-header {
    padding: 1.2rem 1.5rem;
    font-size: 1.3rem;
    font-weight: bold;
    color: white;
    background: linear-gradient(135deg, #667eea, #764ba2);
}

.section-content { padding: 1.5rem; }

table { width: 100%; border-collapse: collapse; }

th {
    text-align: left;
    padding: 0.6rem 0.8rem;
    border-bottom: 2px solid #e0e0e0;
    color: #667eea;
    font-size: 0.9rem;
}

td { padding: 0.6rem 0.8rem; border-bottom: 1px solid #eee; font-size: 0.95rem; }
tr:last-child td { border-bottom: none; }
td.num, th.num { text-align: right; }

.empty-note { color: #666; text-align: center; padding: 2rem; }

.badge {
    display: inline-block;
    padding: 0.15rem 0.6rem;
    border-radius: 12px;
    font-size: 0.8rem;
    font-weight: 600;
}

.badge-never { background: #ffebee; color: #c62828; }
.badge-stale { background: #fff3e0; color: #e65100; }

.footer {
    text-align: center;
    padding: 2rem;
    color: #666;
    border-top: 1px solid #e0e0e0;
    margin-top: 3rem;
    font-size: 0.9rem;
}
`
